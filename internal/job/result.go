package job

import "time"

// ArtifactSet groups the files a completed conversion produced, by role.
// Each list holds lexicographically sorted absolute paths. All four lists
// are empty (never nil, so they marshal as []) unless the run succeeded.
type ArtifactSet struct {
	Markdown    []string `json:"markdown"`
	ContentList []string `json:"contentList"`
	MiddleJSON  []string `json:"middleJson"`
	ModelJSON   []string `json:"modelJson"`
}

// EmptyArtifactSet returns a set with all four categories present and empty.
func EmptyArtifactSet() ArtifactSet {
	return ArtifactSet{
		Markdown:    []string{},
		ContentList: []string{},
		MiddleJSON:  []string{},
		ModelJSON:   []string{},
	}
}

// Total counts artifacts across all categories.
func (a ArtifactSet) Total() int {
	return len(a.Markdown) + len(a.ContentList) + len(a.MiddleJSON) + len(a.ModelJSON)
}

// Timings records the run's wall-clock boundaries in UTC with millisecond
// precision.
type Timings struct {
	StartedAt  string `json:"startedAt"`
	EndedAt    string `json:"endedAt"`
	DurationMs int64  `json:"durationMs"`
}

// Result is the terminal record of a run. It is constructed once at the end
// of the run and serialized verbatim as the manifest.
type Result struct {
	Status        Status      `json:"status"`
	ErrorCode     *Code       `json:"errorCode"`
	OutputDir     string      `json:"outputDir"`
	Artifacts     ArtifactSet `json:"artifacts"`
	EngineVersion string      `json:"engineVersion"`
	Backend       string      `json:"backend"`
	Method        string      `json:"method"`
	Timings       Timings     `json:"timings"`
}

// Stamp formats t as UTC ISO-8601 with millisecond precision and a "Z"
// suffix, the timestamp format shared by events and the manifest.
func Stamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000") + "Z"
}
