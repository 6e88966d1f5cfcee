// Package services holds the application use cases. Each service declares
// the narrow store interfaces it consumes, so tests can swap in fakes.
//
// Services defined in this package:
//   - AuthService: registration, login and captcha challenges
//   - UserService: user administration and profile changes
//   - ExamService: exam scheduling, starting and reporting
//   - QuestionService: question banks, submissions and grading
//   - GroupService: student groups and group exam assignment
//   - ProctoringService: proctoring events and tallies
//   - TicketService: support tickets
//   - NotificationService: user notifications
package services
