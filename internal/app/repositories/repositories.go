package repositories

import (
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examhub/internal/db"
)

// Querier is satisfied by both the pool and an open transaction
type Querier = db.Querier

// querier returns tx when the caller runs inside a transaction, else the pool
func querier(pool *pgxpool.Pool, tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return pool
}

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	ExamRepository         *ExamRepository
	QuestionRepository     *QuestionRepository
	AnswerRepository       *AnswerRepository
	GroupRepository        *GroupRepository
	ProctoringRepository   *ProctoringRepository
	TicketRepository       *TicketRepository
	NotificationRepository *NotificationRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(db),
		ExamRepository:         NewExamRepository(db),
		QuestionRepository:     NewQuestionRepository(db),
		AnswerRepository:       NewAnswerRepository(db),
		GroupRepository:        NewGroupRepository(db),
		ProctoringRepository:   NewProctoringRepository(db),
		TicketRepository:       NewTicketRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}
