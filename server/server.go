package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/skyvoyage/travelpay/handlers"
)

type Server struct {
	echo    *echo.Echo
	Inquiry handlers.InquiryHandler
	Quote   handlers.QuoteHandler
	Payment handlers.PaymentHandler
	Booking handlers.BookingHandler
	Pricing handlers.PricingHandler
}

func NewServer(
	Inquiry handlers.InquiryHandler,
	Quote handlers.QuoteHandler,
	Payment handlers.PaymentHandler,
	Booking handlers.BookingHandler,
	Pricing handlers.PricingHandler,
) *Server {
	return &Server{
		echo:    echo.New(),
		Inquiry: Inquiry,
		Quote:   Quote,
		Payment: Payment,
		Booking: Booking,
		Pricing: Pricing,
	}
}

// Start initializes the server by registering middlewares and routes, and starts listening for connections on the provided address.
// It returns an error if there is an issue starting the server.
func (s *Server) Start(address string) error {
	s.registerMiddlewares()
	s.registerRoutes()
	return s.echo.Start(address)
}

// Run starts the server in a goroutine, then waits for an interrupt or
// SIGTERM and shuts down with a 5 second grace period.
func (s *Server) Run(address string) error {

	go func() {
		if err := s.Start(address); err != nil {
			s.echo.Logger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

func (s *Server) registerMiddlewares() {
	s.echo.Use(middleware.Recover())
}

func (s *Server) registerRoutes() {

	s.echo.POST("/inquiries", s.Inquiry.CreateInquiry)
	s.echo.GET("/inquiries", s.Inquiry.ListInquiries)
	s.echo.GET("/inquiries/:id", s.Inquiry.GetInquiry)
	s.echo.PUT("/inquiries/:id/status", s.Inquiry.UpdateInquiryStatus)

	s.echo.POST("/quotes", s.Quote.CreateQuote)
	s.echo.GET("/quotes/:id", s.Quote.GetQuote)
	s.echo.POST("/quotes/:id/send", s.Quote.SendQuote)
	s.echo.POST("/quotes/:id/cancel", s.Quote.CancelQuote)

	s.echo.POST("/payments", s.Payment.PostPayments)
	s.echo.GET("/payments", s.Payment.GetPayments)
	s.echo.GET("/payments/return", s.Payment.HandleReturn)
	s.echo.POST("/webhook", s.Payment.HandleWebhook)

	s.echo.GET("/bookings/:id", s.Booking.GetBooking)
	s.echo.POST("/bookings/:id/cancel", s.Booking.CancelBooking)
	s.echo.PUT("/bookings/:id/supplier-order", s.Booking.AttachSupplierOrder)

	s.echo.GET("/pricing/:serviceType", s.Pricing.GetPolicy)
	s.echo.PUT("/pricing/:serviceType", s.Pricing.UpdatePolicy)
}
