package redis

const (
	// KeyPrefixApp is the prefix for App record keys.
	KeyPrefixApp = "scout:app:"
	// KeyPrefixURL is the prefix for the url -> app id index.
	KeyPrefixURL = "scout:app:url:"
	// KeyPrefixHistory is the prefix for per-App scan history lists.
	KeyPrefixHistory = "scout:history:"
	// KeyPrefixShot is the prefix for screenshot blobs.
	KeyPrefixShot = "scout:shot:"
	// KeyPrefixThumb is the prefix for screenshot thumbnails.
	KeyPrefixThumb = "scout:shot:thumb:"
	// KeyPrefixSetting is the prefix for persisted settings.
	KeyPrefixSetting = "scout:setting:"
	// KeyAllApps is the set of all App ids.
	KeyAllApps = "scout:apps:all"
)

// AppKey returns the Redis key for an App by id.
func AppKey(id string) string { return KeyPrefixApp + id }

// URLKey returns the Redis key of the url index entry for a canonical url.
func URLKey(url string) string { return KeyPrefixURL + url }

// HistoryKey returns the Redis key of an App's scan history list.
func HistoryKey(appID string) string { return KeyPrefixHistory + appID }

// ShotKey returns the Redis key of an App's screenshot.
func ShotKey(appID string) string { return KeyPrefixShot + appID }

// ThumbKey returns the Redis key of an App's screenshot thumbnail.
func ThumbKey(appID string) string { return KeyPrefixThumb + appID }

// SettingKey returns the Redis key for a persisted setting.
func SettingKey(key string) string { return KeyPrefixSetting + key }

// AllAppsKey returns the key of the set of all App ids.
func AllAppsKey() string { return KeyAllApps }
