package pkg

import (
	"context"
	"fmt"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"ExamPortal/internal/apperror"
	"ExamPortal/internal/auth"
	"ExamPortal/internal/classroom"
	"ExamPortal/internal/config"
	"ExamPortal/internal/exam"
	"ExamPortal/internal/notification"
	"ExamPortal/pkg/middleware"
)

var EchoModules = fx.Module("echo",
	fx.Provide(
		newConfig,
		newLogger,
		config.NewMongoDBClient,
		config.NewEmailService,
		newEmailSender,
		newDispatcher,
		newMailer,
		newUserRepository,
		auth.NewTokenService,
		newOTPService,
		auth.NewAuthService,
		newAuthHandler,
		newClassroomRepository,
		newClassroomService,
		classroom.NewHandler,
		newExamRepository,
		newExamService,
		exam.NewHandler,
		middleware.NewEnforcer,
		NewEchoServer,
	),
	fx.Invoke(ensureIndexes, notification.StartDispatcher, RegisterRoutes),
)

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newEmailSender(service *config.EmailService) config.EmailSender {
	return service
}

func newDispatcher(sender config.EmailSender, cfg config.Config, logger *zap.Logger) *notification.Dispatcher {
	return notification.NewDispatcher(sender, cfg, logger)
}

func newMailer(dispatcher *notification.Dispatcher) notification.Mailer {
	return dispatcher
}

func newUserRepository(db *mongo.Database) auth.Repository {
	return auth.NewMongoRepository(db)
}

func newOTPService(repo auth.Repository, mailer notification.Mailer, cfg config.Config, logger *zap.Logger) *auth.OTPService {
	return auth.NewOTPService(repo, mailer, cfg.OTPTTL, logger)
}

func newAuthHandler(service *auth.AuthService, cfg config.Config) *auth.AuthHandler {
	return auth.NewAuthHandler(service, cfg.RefreshTokenTTL, cfg.Environment == "production")
}

func newClassroomRepository(db *mongo.Database) classroom.Repository {
	return classroom.NewMongoRepository(db)
}

func newClassroomService(repo classroom.Repository, users auth.Repository, logger *zap.Logger) *classroom.Service {
	return classroom.NewService(repo, users, logger)
}

func newExamRepository(db *mongo.Database) exam.Repository {
	return exam.NewMongoRepository(db)
}

func newExamService(repo exam.Repository, users auth.Repository, logger *zap.Logger) *exam.Service {
	return exam.NewService(repo, users, logger)
}

func ensureIndexes(db *mongo.Database, logger *zap.Logger) error {
	return config.EnsureIndexes(db, logger)
}

// newErrorHandler is the single error-formatting boundary: every failure
// leaves the API as {status, message}.
func newErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Internal server error"
		if appErr, ok := apperror.As(err); ok {
			status = appErr.Status
			message = appErr.Message
		} else if httpErr, ok := err.(*echo.HTTPError); ok {
			status = httpErr.Code
			if status == http.StatusNotFound {
				message = "cannot find resource"
			} else {
				message = fmt.Sprintf("%v", httpErr.Message)
			}
		} else {
			logger.Error("unhandled error", zap.Error(err), zap.String("path", c.Request().URL.Path))
		}

		if writeErr := c.JSON(status, map[string]interface{}{
			"status":  status,
			"message": message,
		}); writeErr != nil {
			logger.Error("failed to write error response", zap.Error(writeErr))
		}
	}
}

func NewEchoServer(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = newErrorHandler(logger)
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PATCH, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	addr := ":" + cfg.HTTPPort
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting http server", zap.String("addr", addr))
			go func() {
				if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
					logger.Fatal("failed to start the server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down http server")
			return e.Shutdown(ctx)
		},
	})
	return e
}

func RegisterRoutes(
	e *echo.Echo,
	tokens *auth.TokenService,
	enforcer *casbin.Enforcer,
	authHandler *auth.AuthHandler,
	classHandler *classroom.Handler,
	examHandler *exam.Handler,
) {
	e.POST("/register", authHandler.Register)
	e.POST("/login", authHandler.Login)
	e.POST("/refresh-token", authHandler.RefreshToken)
	e.POST("/forgot-password", authHandler.ForgotPassword)
	e.PATCH("/reset-password", authHandler.ResetPassword)
	e.POST("/send-otp", authHandler.SendOTP)
	e.POST("/verify-otp", authHandler.VerifyOTP)

	protected := e.Group("", middleware.Authenticate(tokens), middleware.RBAC(enforcer))
	protected.POST("/logout", authHandler.Logout)
	protected.GET("/me", authHandler.Me)
	protected.POST("/staff", authHandler.CreateStaff)
	protected.POST("/student", authHandler.CreateStudent)

	org := protected.Group("/organizations/:organizationId", middleware.RequireSameOrganization)
	org.POST("/classes", classHandler.CreateClass)
	org.GET("/classes", classHandler.ListClasses)
	org.POST("/classes/:classId/students", classHandler.EnrollStudents)
	org.DELETE("/classes/:classId/students/:studentId", classHandler.RemoveStudent)
	org.POST("/test-assignments", classHandler.AssignTest)
	org.POST("/tests", examHandler.CreateTest)
	org.GET("/tests/:testId", examHandler.GetTest)
	org.POST("/tests/:testId/questions", examHandler.AddQuestion)
	org.PATCH("/tests/:testId/publish", examHandler.PublishTest)
}
