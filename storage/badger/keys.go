package badger

const (
	sessionPrefix = "sess"
)

// makeSessionKey generates the key holding a project's session.
// Format: prefix:projectID
func makeSessionKey(projectID string) []byte {
	buf := make([]byte, 0, len(sessionPrefix)+1+len(projectID))
	buf = append(buf, sessionPrefix...)
	buf = append(buf, ':')
	return append(buf, projectID...)
}
