/*
Package backend implements the common base of every alocoap HTTP service

A backend installs the cross-cutting middleware on a mux router: a request
scoped logger with a request ID, CORS headers and the answer to preflight
requests. It also provides the operational routes:

	GET /version
	GET /health

The health route pings the database when the backend was built with one.
Domain packages (dashboard, history, songs) add their own routes to the
same router.
*/
package backend
