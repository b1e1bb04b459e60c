// Command vapid prints a fresh VAPID key pair for web push.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	subject := flag.String("subject", "mailto:admin@linkrite.app", "contact URI sent to push services")
	envOnly := flag.Bool("env", false, "print only the .env lines")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to generate VAPID keys")
	}

	if !*envOnly {
		fmt.Println("========================================")
		fmt.Println("VAPID PUBLIC KEY:")
		fmt.Println(publicKey)
		fmt.Println()
		fmt.Println("VAPID PRIVATE KEY:")
		fmt.Println(privateKey)
		fmt.Println("========================================")
		fmt.Println("Add these to your .env file:")
	}
	fmt.Printf("VAPID_PUBLIC_KEY=%s\n", publicKey)
	fmt.Printf("VAPID_PRIVATE_KEY=%s\n", privateKey)
	fmt.Printf("VAPID_SUBJECT=%s\n", *subject)
}
