// Command travelmesh chats with the travel assistant from the terminal.
//
//	travelmesh -f config.yaml chat -q "find me a hotel in Bali"
//	travelmesh chat -t 3f1c... -u user_id=7 -u name=Ada
//	travelmesh thread new
//	travelmesh thread delete <thread-id>
package main

import (
	"os"
)

func main() {
	os.Exit(Run(os.Args[1:]))
}
