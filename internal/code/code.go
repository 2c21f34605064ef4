package code

import (
	"math/rand"
	"regexp"
	"strings"
)

// Человекочитаемые коды сущностей: 10 символов A-Z0-9 в формате XXXX-XXXX-XX.
// Генератор чистый, уникальность не гарантирует: вызывающая сторона вставляет
// код под UNIQUE-ограничением и при коллизии генерирует заново (ограниченное
// число попыток).

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var codePattern = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{2}$`)

// Generate возвращает новый код в формате XXXX-XXXX-XX.
func Generate() string {
	var b strings.Builder
	b.Grow(12)
	for i := 0; i < 10; i++ {
		if i == 4 || i == 8 {
			b.WriteByte('-')
		}
		b.WriteByte(alphabet[rand.Intn(len(alphabet))])
	}
	return b.String()
}

// IsValid проверяет, соответствует ли строка формату кода.
func IsValid(code string) bool {
	return codePattern.MatchString(code)
}
