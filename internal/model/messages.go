package model

// RepoMessage is one repository snapshot, shared by the kafka topic
// payloads and the direct database batches.
type RepoMessage struct {
	Name     string `json:"name"`
	Owner    string `json:"owner"`
	Stars    int    `json:"stars"`
	Watchers int    `json:"watchers"`
	Forks    int    `json:"forks"`
	Language string `json:"language"`
	Updated  string `json:"updated"`
}

// PositionMessage is one (date, repo) ranking record.
type PositionMessage struct {
	Date     string `json:"date"`
	Repo     string `json:"repo"`
	Position int    `json:"position"`
}

// AuthorCommitsMessage is one (date, repo, author) commit count.
type AuthorCommitsMessage struct {
	Date       string `json:"date"`
	Repo       string `json:"repo"`
	Author     string `json:"author"`
	CommitsNum int    `json:"commits_num"`
}
