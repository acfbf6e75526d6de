// Command admin-hash produces the argon2id hash stored in
// STOREFRONT_ADMIN_PASSWORD_HASH.
//
//	admin-hash -password 's3cret'      hash a chosen password
//	admin-hash -generate 20            generate and hash a random password
//	admin-hash -check '$argon2id$...'  verify a password read from -password
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/techcreator/storefront/pkg/config"
	"github.com/techcreator/storefront/pkg/logger"
	"github.com/techcreator/storefront/pkg/security"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "admin-hash"})

	_ = godotenv.Load()

	password := flag.String("password", "", "password to hash or verify")
	generate := flag.Int("generate", 0, "generate a random password of this length")
	check := flag.String("check", "", "encoded hash to verify -password against")
	flag.Parse()

	var cfg config.PasswordConfig
	if err := envconfig.Process(config.EnvPrefix, &cfg); err != nil {
		logg.Error(ctx, "failed to load password config", err)
		os.Exit(1)
	}

	if *check != "" {
		ok, err := security.VerifyPassword(*password, *check)
		if err != nil {
			logg.Error(ctx, "invalid hash", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Println("password does not match")
			os.Exit(2)
		}
		stale, err := security.NeedsRehash(*check, cfg)
		if err != nil {
			logg.Error(ctx, "invalid hash", err)
			os.Exit(1)
		}
		fmt.Println("password matches")
		if stale {
			fmt.Println("hash parameters differ from the current config; rehash recommended")
		}
		return
	}

	plain := *password
	if *generate > 0 {
		generated, err := security.GeneratePassword(*generate)
		if err != nil {
			logg.Error(ctx, "failed to generate password", err)
			os.Exit(1)
		}
		plain = generated
		fmt.Println("password:", plain)
	}
	if plain == "" {
		fmt.Fprintln(os.Stderr, "provide -password or -generate")
		os.Exit(1)
	}

	encoded, err := security.HashPassword(plain, cfg)
	if err != nil {
		logg.Error(ctx, "failed to hash password", err)
		os.Exit(1)
	}
	fmt.Println(encoded)
}
