package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-oath/oathcard/pkg/oath"
	"github.com/go-oath/oathcard/pkg/oathtypes"
	"github.com/go-oath/oathcard/pkg/options"
	"github.com/go-oath/oathcard/pkg/pcsc"
)

func main() {
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelDebug)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))

	card, err := pcsc.Connect()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = card.Close()
	}()
	fmt.Printf("Reader: %s\n", card.Reader)

	session, err := oath.New(card, options.WithLogger(logger))
	if err != nil {
		panic(err)
	}
	fmt.Printf("OATH applet version: %s\n", session.Version())

	if session.Locked() {
		password := os.Getenv("OATH_PASSWORD")
		if password == "" {
			fmt.Println("Token is password protected; set OATH_PASSWORD.")
			os.Exit(1)
		}
		if err := session.Validate(password); err != nil {
			panic(err)
		}
	}

	for cred, err := range session.CalculateAll() {
		if err != nil {
			panic(err)
		}
		if cred.Hidden {
			continue
		}

		// HOTP codes need the counter-advancing single calculation.
		if cred.Type == oathtypes.TypeHOTP {
			if err := session.Calculate(cred); err != nil {
				panic(err)
			}
		}

		code := cred.Code
		switch {
		case cred.Touch:
			code = "<touch required>"
		case code == "":
			code = "<no code>"
		}
		fmt.Printf("%-40s %s\n", cred.Name, code)
	}
}
