/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/jswork01-cmyk/trainning1/cmd"

func main() {
	cmd.Execute()
}
