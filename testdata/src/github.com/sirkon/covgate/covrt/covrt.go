package covrt

func Counter(id uint32) {}

func Expression(id uint32) {}
