package github

import (
	"fmt"
	"time"
)

// BranchSnapshot is a point-in-time record of a branch head and its
// protection flag.
type BranchSnapshot struct {
	Name          string `json:"name"`
	HeadCommitSHA string `json:"headCommitSha"`
	HeadCommitURL string `json:"headCommitUrl"`
	Protected     bool   `json:"protected"`
}

// CompareStatus is the qualitative relation of head to base.
type CompareStatus string

const (
	StatusAhead     CompareStatus = "ahead"
	StatusBehind    CompareStatus = "behind"
	StatusIdentical CompareStatus = "identical"
	StatusDiverged  CompareStatus = "diverged"
)

func ParseCompareStatus(s string) (CompareStatus, error) {
	switch CompareStatus(s) {
	case StatusAhead, StatusBehind, StatusIdentical, StatusDiverged:
		return CompareStatus(s), nil
	default:
		return "", fmt.Errorf("unknown compare status %q", s)
	}
}

// CompareResult summarises the divergence between two commits.
type CompareResult struct {
	AheadBy      int           `json:"aheadBy"`
	BehindBy     int           `json:"behindBy"`
	MergeBaseSHA string        `json:"mergeBaseSha"`
	Status       CompareStatus `json:"status"`
}

type Signature struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

type Commit struct {
	SHA       string    `json:"sha"`
	URL       string    `json:"url"`
	Message   string    `json:"message"`
	Author    Signature `json:"author"`
	Committer Signature `json:"committer"`
}

// Wire shapes of the REST responses. Only the fields the harness reads are
// declared.

type branchPayload struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
		URL string `json:"url"`
	} `json:"commit"`
	Protected bool `json:"protected"`
}

type comparePayload struct {
	Status          string `json:"status"`
	AheadBy         int    `json:"ahead_by"`
	BehindBy        int    `json:"behind_by"`
	MergeBaseCommit struct {
		SHA string `json:"sha"`
	} `json:"merge_base_commit"`
}

type commitPayload struct {
	SHA    string `json:"sha"`
	URL    string `json:"url"`
	Commit struct {
		Message   string           `json:"message"`
		Author    signaturePayload `json:"author"`
		Committer signaturePayload `json:"committer"`
	} `json:"commit"`
}

type signaturePayload struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

func (p branchPayload) snapshot() *BranchSnapshot {
	return &BranchSnapshot{
		Name:          p.Name,
		HeadCommitSHA: p.Commit.SHA,
		HeadCommitURL: p.Commit.URL,
		Protected:     p.Protected,
	}
}

func (p signaturePayload) signature() Signature {
	return Signature(p)
}
