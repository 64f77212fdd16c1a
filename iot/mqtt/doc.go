/*Package mqtt provides the embedded MQTT broker for sensor devices

Devices publish their readings to

	alocoap/{device_id}/readings

and subscribe to

	alocoap/{device_id}/display

to receive the classified state (temperature band and colors) after every
reading. A device may only publish to its own readings topic and subscribe to
its own display topic; everything else below alocoap/ is denied.

Authentication

With CACertFile, CertFile and KeyFile set the broker listens with TLS and
requires a client certificate. The common name of the certificate is the
device ID and must match the MQTT client ID. Without certificates the broker
listens on plain TCP and the MQTT client ID is the device ID, which is only
suitable for a local network.

*/
package mqtt
