package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-api/docs"
	v1 "github.com/atelierhq/atelier-api/internal/api/handler/v1"
	"github.com/atelierhq/atelier-api/internal/api/middleware"
	"github.com/atelierhq/atelier-api/internal/config"
	"github.com/atelierhq/atelier-api/internal/repository"
	"github.com/atelierhq/atelier-api/internal/repository/dao"
	"github.com/atelierhq/atelier-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	authHandler := s.initAuthHandler(db)
	userHandler := s.initUserHandler(db)
	workshopHandler := s.initWorkshopHandler(db)
	participationHandler := s.initParticipationHandler(db)
	progressionHandler := s.initProgressionHandler(db)
	s.MountHandlers(authHandler, userHandler, workshopHandler, participationHandler, progressionHandler)

	return s
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initUserHandler(db *gorm.DB) *v1.UserHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewUserService(repo)
	handler := v1.NewUserHandler(svc)

	return handler
}

func (s *Server) initWorkshopHandler(db *gorm.DB) *v1.WorkshopHandler {
	svc := s.buildWorkshopService(db)
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewWorkshopHandler(svc, uSvc)

	return handler
}

func (s *Server) initParticipationHandler(db *gorm.DB) *v1.ParticipationHandler {
	participationRepo := repository.NewParticipationRepository(dao.NewParticipationDAO(db))
	workshopRepo := repository.NewWorkshopRepository(dao.NewWorkshopDAO(db))
	historyRepo := repository.NewHistoryRepository(dao.NewHistoryDAO(db))
	payments := service.NewStripeProvider(s.Config.Stripe.APIKey)

	svc := service.NewParticipationService(participationRepo, workshopRepo, historyRepo, payments, zap.L())
	wSvc := s.buildWorkshopService(db)
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewParticipationHandler(svc, wSvc, uSvc)

	return handler
}

func (s *Server) initProgressionHandler(db *gorm.DB) *v1.ProgressionHandler {
	roleRepo := repository.NewRoleRepository(dao.NewRoleDAO(db))
	workshopRepo := repository.NewWorkshopRepository(dao.NewWorkshopDAO(db))
	participationRepo := repository.NewParticipationRepository(dao.NewParticipationDAO(db))

	svc := service.NewProgressionService(roleRepo, workshopRepo, participationRepo, service.NullFeedbackProvider{})
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewProgressionHandler(svc, uSvc)

	return handler
}

func (s *Server) buildWorkshopService(db *gorm.DB) *service.WorkshopService {
	workshopRepo := repository.NewWorkshopRepository(dao.NewWorkshopDAO(db))
	participationRepo := repository.NewParticipationRepository(dao.NewParticipationDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	historyRepo := repository.NewHistoryRepository(dao.NewHistoryDAO(db))
	notifier := service.NewLogNotifier(zap.L())

	return service.NewWorkshopService(workshopRepo, participationRepo, userRepo, historyRepo, notifier, zap.L())
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	userHandler *v1.UserHandler,
	workshopHandler *v1.WorkshopHandler,
	participationHandler *v1.ParticipationHandler,
	progressionHandler *v1.ProgressionHandler,
) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	authenticated := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		authenticated.GET("/users/:userID", userHandler.HandleGetUser)
		authenticated.GET("/users/organizers", userHandler.HandleListOrganizers)

		authenticated.GET("/families", workshopHandler.HandleListFamilies)
		authenticated.GET("/families/:familyID/workshops", workshopHandler.HandleListFamilyWorkshops)
		authenticated.GET("/families/:familyID/progression", progressionHandler.HandleEvaluate)
		authenticated.GET("/families/:familyID/progression/levels/:level", progressionHandler.HandleEvaluateLevel)

		authenticated.POST("/workshops", workshopHandler.HandleCreateWorkshop)
		authenticated.GET("/workshops/mine", workshopHandler.HandleListMyWorkshops)
		authenticated.GET("/workshops/:workshopID", workshopHandler.HandleGetWorkshop)
		authenticated.PUT("/workshops/:workshopID", workshopHandler.HandleUpdateWorkshop)
		authenticated.POST("/workshops/:workshopID/classify", workshopHandler.HandleClassifyWorkshop)
		authenticated.POST("/workshops/:workshopID/reschedule", workshopHandler.HandleReschedule)
		authenticated.POST("/workshops/:workshopID/relocate", workshopHandler.HandleRelocate)
		authenticated.POST("/workshops/:workshopID/cancel", workshopHandler.HandleCancelWorkshop)
		authenticated.POST("/workshops/:workshopID/close", workshopHandler.HandleCloseWorkshop)
		authenticated.GET("/workshops/:workshopID/history", workshopHandler.HandleWorkshopHistory)
		authenticated.GET("/workshops/:workshopID/calendar.ics", workshopHandler.HandleExportCalendar)

		authenticated.POST("/workshops/:workshopID/register", participationHandler.HandleRegister)
		authenticated.GET("/workshops/:workshopID/roster", participationHandler.HandleRoster)
		authenticated.GET("/workshops/:workshopID/remaining-seats", participationHandler.HandleRemainingSeats)

		authenticated.GET("/participations/mine", participationHandler.HandleMyParticipations)
		authenticated.POST("/participations/:participationID/confirm-payment", participationHandler.HandleConfirmPayment)
		authenticated.POST("/participations/:participationID/refund", participationHandler.HandleRefund)
		authenticated.POST("/participations/:participationID/cancel", participationHandler.HandleCancel)
		authenticated.POST("/participations/:participationID/exchange", participationHandler.HandleExchange)
		authenticated.POST("/participations/:participationID/reinscribe", participationHandler.HandleReinscribe)
		authenticated.POST("/participations/:participationID/confirm-date", participationHandler.HandleConfirmDate)
		authenticated.POST("/participations/:participationID/confirm-location", participationHandler.HandleConfirmLocation)
		authenticated.POST("/participations/:participationID/attendance", participationHandler.HandleSetAttendance)
		authenticated.DELETE("/participations/:participationID", participationHandler.HandleRemove)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "AtelierHQ API"
	docs.SwaggerInfo.Description = "Workshop booking, lifecycle and organizer progression API."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
