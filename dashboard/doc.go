/*
Package dashboard serves the sensor dashboard

The hub is a ReadingSink. Every reading is classified, applied to the display
gauges, pushed to all WebSocket clients and published to the device's display
topic. The page polls or listens on these routes:

	GET  /                      dashboard page
	GET  /static/...            page assets
	GET  /ws                    WebSocket, first message is the current state
	GET  /data                  latest state for polling
	POST /readings              submit a reading over HTTP
	GET  /classify              classify ?temperature=..&humidity=..

Before the first reading the state shows 0 °C and 80 % humidity.
*/
package dashboard
