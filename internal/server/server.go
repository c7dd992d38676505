package server

import (
	"datamart-checkout/internal/client"
	"datamart-checkout/internal/handler"
	appmw "datamart-checkout/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	echo             *echo.Echo
	authClient       client.AuthClient
	checkoutHandler  *handler.CheckoutHandler
	orderHandler     *handler.OrderHandler
	analyticsHandler *handler.AnalyticsHandler
}

func NewServer(
	authClient client.AuthClient,
	checkoutHandler *handler.CheckoutHandler,
	orderHandler *handler.OrderHandler,
	analyticsHandler *handler.AnalyticsHandler,
	logger *zap.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:             e,
		authClient:       authClient,
		checkoutHandler:  checkoutHandler,
		orderHandler:     orderHandler,
		analyticsHandler: analyticsHandler,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	authenticated := appmw.Authenticate(s.authClient)

	// -------- orders --------
	orders := api.Group("/orders", authenticated)
	orders.POST("/checkout", s.checkoutHandler.InitiateCheckout)
	orders.GET("", s.orderHandler.ListOrders)
	orders.GET("/:orderId", s.orderHandler.GetOrder)
	orders.PUT("/:orderId/status", s.orderHandler.UpdateStatus)
	orders.POST("/:orderId/cancel", s.orderHandler.CancelOrder)
	orders.POST("/:orderId/refund", s.orderHandler.RefundOrder)

	// -------- checkout / payment sessions --------
	checkout := api.Group("/checkout", authenticated)
	checkout.POST("/create-session", s.checkoutHandler.CreateSession)
	checkout.POST("/confirm/:sessionId", s.checkoutHandler.ConfirmPayment)
	checkout.GET("/status/:sessionId", s.checkoutHandler.SessionStatus)
	checkout.POST("/cancel/:sessionId", s.checkoutHandler.CancelPayment)

	// -------- purchase analytics --------
	analytics := api.Group("/analytics", authenticated)
	analytics.GET("/purchases/:transactionId", s.analyticsHandler.GetPurchase)
	analytics.GET("/purchases", s.analyticsHandler.ListPurchases)
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				logger.Error("request", fields...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
