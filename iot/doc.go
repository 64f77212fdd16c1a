/*Package iot provides the reading model shared by all ingress and egress paths

A reading is one temperature and humidity sample of a device. Readings arrive
through the embedded MQTT broker (package iot/mqtt), an external MQTT broker
(package iot/upstream) or the dashboard's HTTP route, and are handed to a
ReadingSink. A Fanout distributes a reading to any number of sinks: the
dashboard hub, the prometheus gauges (iot/metrics), the history store
(iot/history) and the Kafka forwarder (iot/telemetry).

Devices talk to the broker on these topics:

	alocoap/{device_id}/readings   device to server, reading JSON
	alocoap/{device_id}/display    server to device, classified state JSON

*/
package iot
