package main

import (
	"log"

	"github.com/skyvoyage/travelpay/config"
)

func main() {

	server, err := InitializeTravelPaymentService()
	if err != nil {
		log.Fatal(err)
		return
	}

	if err = server.Run(config.ServerStartPort); err != nil {
		log.Fatal(err.Error())
	}

}
