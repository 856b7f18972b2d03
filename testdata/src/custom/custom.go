package custom

func Hit(id int) {}

func Seen(id int) {}

func Use() { // want `custom::custom.go::Use uses 3 coverage counters`
	Hit(2)
	Seen(1 << 40) // want `expression marker id 1099511627776 is out of uint32 range, the call is ignored`
}
