package githubapi

import "strconv"

// SearchResponse is the envelope of the search/repositories endpoint.
type SearchResponse struct {
	TotalCount        int        `json:"total_count"`
	IncompleteResults bool       `json:"incomplete_results"`
	Items             []RepoItem `json:"items"`
}

// RepoItem is one repository as returned by the search endpoint.
type RepoItem struct {
	Id              int64  `json:"id"`
	Name            string `json:"name"`
	FullName        string `json:"full_name"`
	StargazersCount int    `json:"stargazers_count"`
	WatchersCount   int    `json:"watchers_count"`
	ForksCount      int    `json:"forks_count"`
	Language        string `json:"language"`
	UpdatedAt       string `json:"updated_at"`
	Owner           Owner  `json:"owner"`
}

type Owner struct {
	Login string `json:"login"`
}

// CommitItem is one commit from the repository commits listing.
type CommitItem struct {
	SHA    string        `json:"sha"`
	Author *CommitAuthor `json:"author"`
	Commit CommitDetail  `json:"commit"`
}

type CommitAuthor struct {
	Id    int64  `json:"id"`
	Login string `json:"login"`
}

type CommitDetail struct {
	Message string       `json:"message"`
	Author  CommitPerson `json:"author"`
}

type CommitPerson struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

// AuthorKey identifies the commit author: the numeric GitHub account id
// when the commit is linked to one, otherwise the commit author email.
func (c CommitItem) AuthorKey() string {
	if c.Author != nil && c.Author.Id != 0 {
		return strconv.FormatInt(c.Author.Id, 10)
	}
	return c.Commit.Author.Email
}
