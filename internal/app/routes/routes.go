package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/examhub/internal/app/controllers"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/middleware"
)

// Controllers groups every HTTP handler the router mounts
type Controllers struct {
	Auth         *controllers.AuthController
	User         *controllers.UserController
	Exam         *controllers.ExamController
	Question     *controllers.QuestionController
	Group        *controllers.GroupController
	Proctoring   *controllers.ProctoringController
	Ticket       *controllers.TicketController
	Notification *controllers.NotificationController
	Health       *controllers.HealthController
	LiveMonitor  gin.HandlerFunc
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/ping", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	// API version group
	v1 := router.Group("/api/v1")
	v1.GET("/health", c.Health.Health)

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.GET("/captcha", c.Auth.Captcha)
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	staff := authMiddleware.StaffOnly()
	adminOnly := authMiddleware.RoleRequired(models.RoleAdmin)
	studentOnly := authMiddleware.RoleRequired(models.RoleStudent)

	authenticated.GET("/auth/me", c.Auth.Me)

	users := authenticated.Group("/users")
	{
		users.GET("", staff, c.User.ListUsers)
		users.GET("/stats", adminOnly, c.User.Stats)
		users.GET("/:id", c.User.GetUser)
		users.PATCH("/:id", c.User.UpdateProfile)
		users.PATCH("/:id/password", c.User.ChangePassword)
		users.PATCH("/:id/status", adminOnly, c.User.UpdateStatus)
		users.PATCH("/:id/role", adminOnly, c.User.UpdateRole)
		users.POST("/:id/reset-password", adminOnly, c.User.ResetPassword)
	}

	exams := authenticated.Group("/exams")
	{
		exams.GET("", c.Exam.ListExams)
		exams.POST("", staff, c.Exam.CreateExam)

		// Static segments coexist with the :id routes below
		exams.GET("/student/results", studentOnly, c.Exam.StudentResults)
		exams.GET("/teacher/analytics", staff, c.Exam.Analytics)
		exams.GET("/teacher/grading", staff, c.Exam.Grading)
		exams.GET("/admin/all", adminOnly, c.Exam.ListAllExams)

		exams.GET("/:id", c.Exam.GetExam)
		exams.PATCH("/:id", staff, c.Exam.UpdateExam)
		exams.DELETE("/:id", staff, c.Exam.DeleteExam)
		exams.POST("/:id/start", studentOnly, c.Exam.StartExam)
		exams.POST("/:id/candidates", staff, c.Exam.AssignCandidates)

		// Questions and answers
		exams.GET("/:id/questions", c.Question.ListQuestions)
		exams.POST("/:id/questions", staff, c.Question.CreateQuestion)
		exams.POST("/:id/answers", studentOnly, c.Question.SubmitAnswers)
		exams.POST("/:id/submit", studentOnly, c.Question.SubmitAnswers)
		exams.GET("/:id/answers", c.Question.ListAnswers)

		// Proctoring
		exams.POST("/:id/proctoring", studentOnly, c.Proctoring.LogEvent)
		exams.GET("/:id/proctoring", staff, c.Proctoring.ListEvents)
		exams.GET("/:id/proctoring/summary", staff, c.Proctoring.Summary)
		if c.LiveMonitor != nil {
			exams.GET("/:id/proctoring/live", staff, c.LiveMonitor)
		}
	}

	questions := authenticated.Group("/questions")
	questions.Use(staff)
	{
		questions.GET("", adminOnly, c.Question.ListBank)
		questions.PATCH("/:id", c.Question.UpdateQuestion)
		questions.DELETE("/:id", c.Question.DeleteQuestion)
	}

	authenticated.GET("/proctoring/events", adminOnly, c.Proctoring.ListAllEvents)

	groups := authenticated.Group("/groups")
	{
		groups.GET("", c.Group.ListGroups)
		groups.POST("", staff, c.Group.CreateGroup)
		groups.GET("/:id/members", c.Group.ListMembers)
		groups.POST("/:id/members", staff, c.Group.AddMembers)
		groups.POST("/:id/assign-exam", staff, c.Group.AssignExam)
	}

	tickets := authenticated.Group("/tickets")
	{
		tickets.POST("", c.Ticket.CreateTicket)
		tickets.GET("", c.Ticket.ListTickets)
		tickets.PATCH("/:id", adminOnly, c.Ticket.ResolveTicket)
		tickets.POST("/:id/replies", c.Ticket.Reply)
		tickets.GET("/:id/replies", c.Ticket.ListReplies)
	}

	notifications := authenticated.Group("/notifications")
	{
		notifications.GET("", c.Notification.ListUnread)
		notifications.PATCH("/read-all", c.Notification.MarkAllRead)
		notifications.PATCH("/:id/read", c.Notification.MarkRead)
	}
}
