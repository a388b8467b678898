// Command admin creates accounts directly in the store, bypassing email
// verification. Meant for bootstrapping a fresh installation or recovering
// access when no mail relay is available.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/dmitrijs2005/dayplanner/internal/server/config"
	"github.com/dmitrijs2005/dayplanner/internal/server/models"
	"github.com/dmitrijs2005/dayplanner/internal/server/repositories/storemanager"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	store, err := storemanager.New(ctx, cfg.DatabaseDSN, cfg.DataDir)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	defer store.Close()

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Enter user name")
	username, err := reader.ReadString('\n')
	if err != nil {
		log.Fatal(err)
	}
	username = strings.TrimSpace(username)

	fmt.Println("Enter email")
	email, err := reader.ReadString('\n')
	if err != nil {
		log.Fatal(err)
	}
	email = strings.TrimSpace(email)

	fmt.Println("Enter password")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		log.Fatal(err)
	}

	if username == "" || len(password) == 0 {
		log.Fatal("user name and password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err)
	}

	if _, err := store.Accounts().Create(ctx, &models.Account{
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
	}); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Success!")

}
