package main

import (
	"database/sql"

	"github.com/akinalp/socialspace/repository"
)

// Repositories groups the repository implementations so wire-up functions
// take one parameter instead of five.
type Repositories struct {
	User    repository.UserRepository
	Follow  repository.FollowRepository
	Post    repository.PostRepository
	Comment repository.CommentRepository
	Message repository.MessageRepository
}

// initRepositories builds every repository over the shared pool.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:    repository.NewSQLiteUserRepo(conn),
		Follow:  repository.NewSQLiteFollowRepo(conn),
		Post:    repository.NewSQLitePostRepo(conn),
		Comment: repository.NewSQLiteCommentRepo(conn),
		Message: repository.NewSQLiteMessageRepo(conn),
	}
}
