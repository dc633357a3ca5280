package snap

import (
	"fmt"
	"strings"
	"time"
)

// ManifestName is the file written into the staging directory before zipping.
const ManifestName = "backup_info.txt"

// noRemotePlaceholder is recorded when the repository has no configured
// remote. Remote lookup failure is non-fatal.
const noRemotePlaceholder = "No remote URL found"

// Manifest is the human-readable record of repository state written
// alongside the backed-up files.
type Manifest struct {
	CreatedAt time.Time
	Summary   Summary
	Changes   ChangeSet
}

// Render produces the manifest text. The field order is fixed: timestamp,
// remote URL, branch, last commit, then the three file lists each under
// its header. Empty lists render as the header followed by an empty line.
func (m Manifest) Render() string {
	remote := m.Summary.RemoteURL
	if remote == "" {
		remote = noRemotePlaceholder
	}

	message := strings.TrimSpace(m.Summary.HeadMessage)
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = message[:i]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Backup created on: %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Repository: %s\n", remote)
	fmt.Fprintf(&b, "Current branch: %s\n", m.Summary.Branch)
	fmt.Fprintf(&b, "Last commit: %s - %s\n\n", m.Summary.HeadID, message)

	fmt.Fprintf(&b, "Modified files:\n%s\n\n", strings.Join(m.Changes.Modified, "\n"))
	fmt.Fprintf(&b, "Untracked files:\n%s\n\n", strings.Join(m.Changes.Untracked, "\n"))
	fmt.Fprintf(&b, "Staged files:\n%s\n", strings.Join(m.Changes.Staged, "\n"))

	return b.String()
}
