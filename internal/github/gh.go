package gh

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/go-github/v63/github"
)

type NoPRError struct{}

func (e NoPRError) Error() string {
	return "PR not initialized"
}

// Client is the surface of the GitHub API this tool uses: fetching a pull
// request and its unified diff, and managing the results comment.
type Client interface {
	SetWarningBuffer(writer io.Writer)
	SetInfoBuffer(writer io.Writer)
	InitPR(prID int) error
	PR() *github.PullRequest
	GetPRDiff() (string, error)
	InitComments() error
	AddComment(comment string) error
	FindExistingComment(prefix string, since *time.Time) (int64, bool, error)
	UpdateComment(commentID int64, body string) error
	IsInComments(comment string, since *time.Time) (bool, error)
}

type GHClient struct {
	ctx           context.Context
	owner         string
	repo          string
	client        *github.Client
	pr            *github.PullRequest
	comments      []*github.IssueComment
	warningBuffer io.Writer
	infoBuffer    io.Writer
}

func NewClient(owner, repo, token string) Client {
	client := github.NewClient(nil).WithAuthToken(token)
	return &GHClient{
		ctx:           context.Background(),
		owner:         owner,
		repo:          repo,
		client:        client,
		warningBuffer: io.Discard,
		infoBuffer:    io.Discard,
	}
}

func (gh *GHClient) PR() *github.PullRequest {
	return gh.pr
}

func (gh *GHClient) SetWarningBuffer(writer io.Writer) {
	gh.warningBuffer = writer
}

func (gh *GHClient) SetInfoBuffer(writer io.Writer) {
	gh.infoBuffer = writer
}

func (gh *GHClient) InitPR(prID int) error {
	pull, res, err := gh.client.PullRequests.Get(gh.ctx, gh.owner, gh.repo, prID)
	if err != nil {
		return err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	gh.pr = pull
	return nil
}

// GetPRDiff fetches the pull request in unified diff form, exactly as git
// would print it.
func (gh *GHClient) GetPRDiff() (string, error) {
	if gh.pr == nil {
		return "", &NoPRError{}
	}
	raw, res, err := gh.client.PullRequests.GetRaw(
		gh.ctx, gh.owner, gh.repo, gh.pr.GetNumber(),
		github.RawOptions{Type: github.Diff},
	)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	return raw, nil
}

func (gh *GHClient) InitComments() error {
	if gh.pr == nil {
		return &NoPRError{}
	}
	allComments := make([]*github.IssueComment, 0)
	listComments := func(page int) (*github.Response, error) {
		listOptions := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100, Page: page}}
		comments, res, err := gh.client.Issues.ListComments(gh.ctx, gh.owner, gh.repo, gh.pr.GetNumber(), listOptions)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = res.Body.Close()
		}()
		allComments = append(allComments, comments...)
		return res, err
	}
	err := walkPaginatedApi(listComments)
	if err != nil {
		return err
	}
	gh.comments = allComments
	return nil
}

func (gh *GHClient) AddComment(comment string) error {
	if gh.pr == nil {
		return &NoPRError{}
	}
	createCommentOptions := &github.IssueComment{
		Body: &comment,
	}
	_, res, err := gh.client.Issues.CreateComment(gh.ctx, gh.owner, gh.repo, gh.pr.GetNumber(), createCommentOptions)
	if err != nil {
		return err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	return err
}

func (gh *GHClient) FindExistingComment(prefix string, since *time.Time) (int64, bool, error) {
	if gh.pr == nil {
		return 0, false, &NoPRError{}
	}
	if err := gh.InitComments(); err != nil {
		return 0, false, err
	}

	for _, comment := range gh.comments {
		if since != nil && comment.GetCreatedAt().Before(*since) {
			continue
		}
		if strings.HasPrefix(comment.GetBody(), prefix) {
			return comment.GetID(), true, nil
		}
	}
	return 0, false, nil
}

func (gh *GHClient) UpdateComment(commentID int64, body string) error {
	if gh.pr == nil {
		return &NoPRError{}
	}
	comment := &github.IssueComment{
		Body: &body,
	}
	_, res, err := gh.client.Issues.EditComment(gh.ctx, gh.owner, gh.repo, commentID, comment)
	if err != nil {
		return err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	return nil
}

func (gh *GHClient) IsInComments(comment string, since *time.Time) (bool, error) {
	if gh.pr == nil {
		return false, &NoPRError{}
	}
	if gh.comments == nil {
		if err := gh.InitComments(); err != nil {
			return false, err
		}
	}
	for _, c := range gh.comments {
		if since != nil && c.GetCreatedAt().Before(*since) {
			continue
		}
		if c.GetBody() == comment {
			return true, nil
		}
	}
	return false, nil
}

func walkPaginatedApi(apiCall func(int) (*github.Response, error)) error {
	page := 1
	for {
		res, err := apiCall(page)
		if err != nil {
			return err
		}
		if res.NextPage == 0 {
			break
		}
		page = res.NextPage
	}
	return nil
}
