package senders

import (
	"fmt"
)

type restockEmailFormat struct {
	alert RestockAlert
}

func (ef *restockEmailFormat) Subject() string {
	return fmt.Sprintf("Stockwatch: %s is back in stock", ef.alert.DisplayTitle())
}

func (ef *restockEmailFormat) Body() string {
	return fmt.Sprintf(
		`
			<h3><a href="%s">%s</a> is now in stock!</h3>
			<br>
			Store: %s
			<br>
			Hurry and grab it before it's gone!
		`,
		ef.alert.Locator, ef.alert.DisplayTitle(),
		ef.alert.StoreID,
	)
}

type restockDiscordFormat struct {
	recipient string
	alert     RestockAlert
}

func (df *restockDiscordFormat) Content() string {
	return fmt.Sprintf(
		"<@%s> 🎉 **PRODUCT NOW IN STOCK!**\n\n**%s**\nStore: %s\n%s\n\nHurry and grab it before it's gone!",
		df.recipient,
		df.alert.DisplayTitle(),
		df.alert.StoreID,
		df.alert.Locator,
	)
}
