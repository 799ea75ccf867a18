// Package workflowmax is a client for the WorkflowMax practice management
// API. It looks up staff, lists the jobs and tasks assigned to a staff
// member and records time against them.
//
// Every call is a blocking query issued through the query engine; responses
// are XML documents wrapped in a <Response> envelope whose <Status> must be
// OK.
package workflowmax
