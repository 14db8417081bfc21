package github

import (
	"context"

	"github.com/google/go-github/github"
	"github.com/stretchr/testify/mock"
)

type MockRepoService struct {
	mock.Mock
}

func (m *MockRepoService) GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error) {
	args := m.Called(ctx, owner, repo, path, opts)
	var file *github.RepositoryContent
	if args.Get(0) != nil {
		file = args.Get(0).(*github.RepositoryContent)
	}
	var dir []*github.RepositoryContent
	if args.Get(1) != nil {
		dir = args.Get(1).([]*github.RepositoryContent)
	}
	var resp *github.Response
	if args.Get(2) != nil {
		resp = args.Get(2).(*github.Response)
	}
	return file, dir, resp, args.Error(3)
}
