package domain

// CartLine представляет одну позицию корзины: товар, вариант цвета и количество.
type CartLine struct {
	ProductID string `json:"productId"`
	ColorID   string `json:"colorId"`
	Quantity  int    `json:"quantity"`
}

// CartState агрегирует состояние корзины сессии.
// Порядок позиций влияет только на отображение; флаг IsOpen — чисто презентационный.
type CartState struct {
	Lines  []CartLine `json:"items"`
	IsOpen bool       `json:"isOpen"`
}

// AddLine увеличивает количество существующей позиции (productID, colorID)
// или добавляет новую с количеством 1. Инвариант: не более одной позиции
// на пару (productID, colorID).
func AddLine(lines []CartLine, productID, colorID string) []CartLine {
	for i := range lines {
		if lines[i].ProductID == productID && lines[i].ColorID == colorID {
			lines[i].Quantity++
			return lines
		}
	}
	return append(lines, CartLine{ProductID: productID, ColorID: colorID, Quantity: 1})
}

// RemoveLine удаляет позицию; отсутствие позиции — no-op.
func RemoveLine(lines []CartLine, productID, colorID string) []CartLine {
	result := lines[:0]
	for _, line := range lines {
		if line.ProductID == productID && line.ColorID == colorID {
			continue
		}
		result = append(result, line)
	}
	return result
}

// SetLineQuantity заменяет количество позиции. Значение <= 0 эквивалентно удалению:
// позиция с неположительным количеством в корзине существовать не может.
func SetLineQuantity(lines []CartLine, productID, colorID string, quantity int) []CartLine {
	if quantity <= 0 {
		return RemoveLine(lines, productID, colorID)
	}
	for i := range lines {
		if lines[i].ProductID == productID && lines[i].ColorID == colorID {
			lines[i].Quantity = quantity
			return lines
		}
	}
	return lines
}

// ValidLines отбрасывает структурно некорректные позиции из загруженного снапшота.
// Используется при восстановлении корзины из хранилища: битые записи молча отбрасываются.
func ValidLines(lines []CartLine) []CartLine {
	result := make([]CartLine, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == "" || line.ColorID == "" || line.Quantity < 1 {
			continue
		}
		result = append(result, line)
	}
	return result
}
