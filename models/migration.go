package models

import (
	"log"

	"github.com/mmdatafocus/ledger_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Party{},
		&Transaction{}, &BuyItem{}, &SellItem{},
		&Report{},
		&Notification{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
