/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/nova-jack/novafusion/cmd"

func main() {
	cmd.Execute()
}
