package iot

import "strings"

// TopicPrefix is the prefix of all device topics
const TopicPrefix = "alocoap/"

// ReadingsTopic returns the topic a device publishes its readings to
func ReadingsTopic(deviceID string) string {
	return TopicPrefix + deviceID + "/readings"
}

// DisplayTopic returns the topic a device receives its classified state on
func DisplayTopic(deviceID string) string {
	return TopicPrefix + deviceID + "/display"
}

// DeviceFromTopic extracts the device ID from a readings topic
func DeviceFromTopic(topic string) (string, bool) {
	if !strings.HasPrefix(topic, TopicPrefix) || !strings.HasSuffix(topic, "/readings") {
		return "", false
	}
	deviceID := strings.TrimSuffix(strings.TrimPrefix(topic, TopicPrefix), "/readings")
	if deviceID == "" || strings.ContainsAny(deviceID, "/+#") {
		return "", false
	}
	return deviceID, true
}
