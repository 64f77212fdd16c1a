/*
Package history stores readings and serves them over REST

The store is a ReadingSink, so it can be added to a fanout next to the
dashboard. It creates a table "reading" if it does not exist yet and adds
these routes:

	GET /devices/{device_id}/readings?limit=100
	GET /devices/{device_id}/readings/latest

Readings are listed newest first. The limit defaults to 100 and must not
exceed 1000.
*/
package history
