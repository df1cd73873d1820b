package main

type IPlayer interface {
	IsHuman() bool
	Name() string
}
