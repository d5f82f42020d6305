package main

import "github.com/textchain/blockchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
