package acquire

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bytesub/internal/services"
)

// Kind distinguishes local paths from remote URLs.
type Kind string

const (
	KindLocalFile Kind = "local_file"
	KindRemoteURL Kind = "remote_url"
)

// Input is one media source as supplied by the user.
type Input struct {
	Kind     Kind
	Location string
}

func (in Input) String() string {
	return in.Location
}

// Failure pairs an input that could not be expanded with its cause.
type Failure struct {
	Input Input
	Err   error
}

var mediaExtensions = map[string]struct{}{
	".mp4": {},
	".mp3": {},
	".wav": {},
	".mkv": {},
	".mov": {},
}

// IsMediaFile reports whether name has one of the accepted media extensions.
func IsMediaFile(name string) bool {
	_, ok := mediaExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// ParseInput classifies a raw argument. http and https URLs are remote;
// everything else is a local path.
func ParseInput(raw string) Input {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return Input{Kind: KindRemoteURL, Location: raw}
	}
	return Input{Kind: KindLocalFile, Location: raw}
}

// ParseInputs classifies every raw argument, skipping blanks.
func ParseInputs(raw []string) []Input {
	out := make([]Input, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		out = append(out, ParseInput(r))
	}
	return out
}

// Expand resolves inputs into batch items. Local files pass through, folders
// contribute their immediate media children in directory order, and remote
// URLs stay deferred until Fetch. Inputs that cannot be resolved become
// acquisition failures and are not returned as items.
func Expand(inputs []Input) ([]Input, []Failure) {
	var (
		items    []Input
		failures []Failure
	)
	for _, in := range inputs {
		if in.Kind == KindRemoteURL {
			items = append(items, in)
			continue
		}
		info, err := os.Stat(in.Location)
		if err != nil {
			failures = append(failures, Failure{Input: in, Err: services.Wrap(services.ErrAcquisition, "acquire", "stat input", in.Location, err)})
			continue
		}
		if !info.IsDir() {
			items = append(items, in)
			continue
		}
		children, err := listMedia(in.Location)
		if err != nil {
			failures = append(failures, Failure{Input: in, Err: services.Wrap(services.ErrAcquisition, "acquire", "read folder", in.Location, err)})
			continue
		}
		items = append(items, children...)
	}
	return items, failures
}

func listMedia(dir string) ([]Input, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []Input
	for _, entry := range entries {
		if !entry.Type().IsRegular() && entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		if !IsMediaFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if entry.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
		}
		out = append(out, Input{Kind: KindLocalFile, Location: path})
	}
	return out, nil
}

// errEmptyLocation is returned by Fetch for blank inputs.
var errEmptyLocation = errors.New("empty input location")

func validate(in Input) error {
	if strings.TrimSpace(in.Location) == "" {
		return errEmptyLocation
	}
	switch in.Kind {
	case KindLocalFile, KindRemoteURL:
		return nil
	default:
		return fmt.Errorf("unknown input kind %q", in.Kind)
	}
}
