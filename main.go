/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package main

import (
	"github.com/josephgoksu/ReqWing/cmd"
	"github.com/josephgoksu/ReqWing/internal/logger"
)

func main() {
	defer logger.HandlePanic()
	cmd.Execute()
}
