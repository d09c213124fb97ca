package live

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

type identity struct {
	userID    string
	sessionID string
	projectID string
}

// identityFromLocation recovers identifiers from a launch address such as
// https://app.example/sessions/abc?user_id=u1.
func identityFromLocation(location string) identity {
	if location == "" {
		return identity{}
	}
	parsed, err := url.Parse(location)
	if err != nil {
		return identity{}
	}

	query := parsed.Query()
	found := identity{
		userID:    firstQueryValue(query, "user_id", "userId"),
		sessionID: firstQueryValue(query, "session_id", "sessionId"),
		projectID: firstQueryValue(query, "project_id", "projectId"),
	}
	if found.sessionID == "" {
		found.sessionID = sessionFromPath(parsed.Path)
	}
	if found.sessionID == "" {
		found.sessionID = found.projectID
	}
	return found
}

func firstQueryValue(query url.Values, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(query.Get(key)); value != "" {
			return value
		}
	}
	return ""
}

func sessionFromPath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "sessions" && segments[i+1] != "" {
			return segments[i+1]
		}
	}
	return ""
}

// resolve fills empty fields from fallback and generates a caller id when
// none is known.
func (id identity) resolve(fallback identity) identity {
	if id.userID == "" {
		id.userID = fallback.userID
	}
	if id.sessionID == "" {
		id.sessionID = fallback.sessionID
	}
	if id.projectID == "" {
		id.projectID = fallback.projectID
	}
	if id.userID == "" {
		id.userID = uuid.NewString()
	}
	return id
}
