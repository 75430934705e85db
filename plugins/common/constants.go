package common

const (
	// LogSystemToken describes system log entry.
	LogSystemToken = "system"
	// LogWorkerToken describes worker log entry.
	LogWorkerToken = "worker"
	// LogDeviceTypeToken describes device type log entry.
	LogDeviceTypeToken = "device_type"
	// LogDeviceNameToken describes device name log entry.
	LogDeviceNameToken = "device_name"
	// LogDeviceIDToken describes device identity log entry.
	LogDeviceIDToken = "device_id"
	// LogDeviceCommandToken describes device command log entry.
	LogDeviceCommandToken = "device_cmd"
	// LogDeviceHostToken describes device host log entry.
	LogDeviceHostToken = "host_ip"
	// LogDevicePortToken describes device port log entry.
	LogDevicePortToken = "port"
	// LogDeviceEventToken describes discovery event log entry.
	LogDeviceEventToken = "event"
	// LogNotificationToken describes device notification log entry.
	LogNotificationToken = "notification"
	// LogUserNameToken describes user name log entry.
	LogUserNameToken = "user"
	// LogURLToken describes URL log entry.
	LogURLToken = "url"
)

const (
	// LogNodeToken describes node log entry.
	LogNodeToken = "node"
	// LogErrorToken describes error log entry.
	LogErrorToken = "error"
	// LogFileToken describes file log entry.
	LogFileToken = "file"
	// LogProviderToken describes provider log entry.
	LogProviderToken = "provider"
	// LogFieldToken describes field log entry.
	LogFieldToken = "field"
	// LogTransportToken describes discovery transport log entry.
	LogTransportToken = "transport"
	// LogSecretToken describes secret name log entry.
	LogSecretToken = "secret"
)
