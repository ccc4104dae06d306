package constant

// Actor kinds
const (
	ActorKindPerson       = 1
	ActorKindOrganization = 2
)

// Conversation kinds
const (
	ConversationKindPersonal = 1 // person <-> person
	ConversationKindOrg      = 2 // mediated by an organization
)

// Media types
const (
	MediaTypeText  = 1
	MediaTypeImage = 2
	MediaTypeVideo = 3
	MediaTypeAudio = 4
	MediaTypeFile  = 5
)

// MediaTypeName converts a media type to a display name
func MediaTypeName(mediaType int32) string {
	switch mediaType {
	case MediaTypeText:
		return "text"
	case MediaTypeImage:
		return "image"
	case MediaTypeVideo:
		return "video"
	case MediaTypeAudio:
		return "audio"
	case MediaTypeFile:
		return "file"
	default:
		return "unknown"
	}
}

// Pairing key namespaces
const (
	PersonalPairingPrefix = "dm::"
	OrgPairingPrefix      = "org:"
	PairingSeparator      = "::"
)

// DefaultListLimit caps message page sizes
const DefaultListLimit = 100

// Redis key patterns (without prefix, use RedisKey*() to get full key)
const (
	redisKeySeqConversation = "seq:conv:%s" // seq:conv:{conversation_id}
	redisKeyActor           = "actor:%s:%d" // actor:{subject_id}:{kind}
)

// redisKeyPrefix is the global prefix for all Redis keys
var redisKeyPrefix = "parley:"

// InitRedisKeyPrefix initializes the Redis key prefix from config
func InitRedisKeyPrefix(prefix string) {
	if prefix != "" {
		redisKeyPrefix = prefix
	}
}

// GetRedisKeyPrefix returns the current Redis key prefix
func GetRedisKeyPrefix() string {
	return redisKeyPrefix
}

// Redis key getters with prefix
func RedisKeySeqConversation() string { return redisKeyPrefix + redisKeySeqConversation }
func RedisKeyActor() string          { return redisKeyPrefix + redisKeyActor }
