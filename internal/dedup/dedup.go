// Package dedup убирает из свежей расшифровки речи фразы, которые пользователь
// уже произносил на прошлых ходах.
package dedup

import (
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Граница вхождения: пробельный символ, знак конца предложения или край строки.
const (
	leftBoundary  = `(?<=^|[\s.,!?])`
	rightBoundary = `(?=$|[\s.,!?])`
)

// Clean возвращает rawText без всех вхождений записей history.
//
// Вхождение удаляется, только если оно ограничено с обеих сторон пробелом,
// одним из знаков ".,!?" или началом/концом строки, поэтому запись "go"
// не трогает "going". Сравнение регистронезависимое. Записи применяются
// в порядке их добавления (от старых к новым), после каждого удаления строка
// заново обрезается. Проходы по истории повторяются, пока очередной проход
// ничего не удалит, так что Clean(Clean(s, h), h) == Clean(s, h).
//
// Невалидные UTF-8 байты заранее заменяются на U+FFFD, поэтому результат не
// зависит от того, было ли удаление. Пробелы внутри записи истории совпадают
// с любой непустой последовательностью пробельных символов.
//
// Если ничего не удалено, результат равен обрезанному rawText.
// После удаления последовательности пробелов схлопываются в один.
func Clean(rawText string, history []string) string {
	cleaned := strings.TrimSpace(strings.ToValidUTF8(rawText, string(utf8.RuneError)))
	if cleaned == "" || len(history) == 0 {
		return cleaned
	}

	patterns := compileHistory(history)
	if len(patterns) == 0 {
		return cleaned
	}

	for {
		changed := false
		for _, re := range patterns {
			next, removed := remove(re, cleaned)
			if !removed {
				continue
			}
			cleaned = collapseSpaces(next)
			changed = true
			if cleaned == "" {
				return ""
			}
		}
		if !changed {
			return cleaned
		}
	}
}

// compileHistory превращает записи истории в литеральные шаблоны.
// Пустые записи пропускаются: они совпали бы с каждой границей.
func compileHistory(history []string) []*regexp2.Regexp {
	patterns := make([]*regexp2.Regexp, 0, len(history))
	for _, entry := range history {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		patterns = append(patterns, literalPattern(entry))
	}
	return patterns
}

// literalPattern экранирует каждое слово записи, поэтому компиляция не может
// упасть на произвольной речи пользователя. Слова соединяются через \s+.
func literalPattern(entry string) *regexp2.Regexp {
	words := strings.Fields(entry)
	for i, w := range words {
		words[i] = regexp2.Escape(w)
	}
	return regexp2.MustCompile(leftBoundary+strings.Join(words, `\s+`)+rightBoundary, regexp2.IgnoreCase)
}

// remove удаляет все вхождения шаблона. regexp2 возвращает ошибку только по
// MatchTimeout, который здесь не задается; ошибка считается отсутствием совпадения.
func remove(re *regexp2.Regexp, s string) (string, bool) {
	matched, err := re.MatchString(s)
	if err != nil || !matched {
		return s, false
	}
	out, err := re.Replace(s, "", -1, -1)
	if err != nil {
		return s, false
	}
	return out, out != s
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
