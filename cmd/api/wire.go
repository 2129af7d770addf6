//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/skyvoyage/travelpay"
	"github.com/skyvoyage/travelpay/booking"
	"github.com/skyvoyage/travelpay/config"
	"github.com/skyvoyage/travelpay/driver"
	"github.com/skyvoyage/travelpay/event"
	"github.com/skyvoyage/travelpay/gateway"
	"github.com/skyvoyage/travelpay/handlers"
	"github.com/skyvoyage/travelpay/inquiry"
	"github.com/skyvoyage/travelpay/notify"
	"github.com/skyvoyage/travelpay/payment_record"
	"github.com/skyvoyage/travelpay/pricing"
	"github.com/skyvoyage/travelpay/quote"
	"github.com/skyvoyage/travelpay/server"
	"github.com/skyvoyage/travelpay/supplier"
)

func InitializeTravelPaymentService() (*server.Server, error) {

	wire.Build(
		config.ProvideApplicationConfig,
		config.NewLogger,
		config.ProvidePostgresConn,
		config.ProvideEmber,
		config.ProvideIgnite,
		config.ProvideNatsConn,
		driver.NewTransactionManager,
		pricing.NewRepository,
		pricing.NewService,
		quote.NewRepository,
		quote.NewService,
		inquiry.NewRepository,
		inquiry.NewService,
		payment_record.NewRepository,
		payment_record.NewService,
		booking.NewRepository,
		booking.NewService,
		event.NewRepository,
		event.NewService,
		gateway.NewClient,
		supplier.NewClient,
		notify.NewNatsNotifier,
		travelpay.NewTravelPayments,
		handlers.NewInquiryHandler,
		handlers.NewQuoteHandler,
		handlers.NewPaymentHandler,
		handlers.NewBookingHandler,
		handlers.NewPricingHandler,
		server.NewServer,
	)

	return &server.Server{}, nil
}
