// cmd/genpin/main.go — prints the bcrypt hash for a PIN.
// Usage: go run ./cmd/genpin 1234
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	pin := "1234"
	if len(os.Args) > 1 {
		pin = os.Args[1]
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(h))
}
