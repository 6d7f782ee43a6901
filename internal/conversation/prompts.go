package conversation

import (
	"fmt"
	"strings"

	"declbot/internal/domain"
)

const (
	greeting      = "Привет! Давай соберём декларацию. Напиши наименование товара (например, 'томаты'):"
	needStart     = "Чтобы начать новую декларацию, отправь /start. Чтобы разобрать документы, пришли архив или файл."
	cancelled     = "Сессия сброшена. Отправь /start, чтобы начать заново."
	nothingToDrop = "Активной сессии нет. Отправь /start, чтобы начать."
	itemAdded     = "✅ Позиция добавлена. Добавить ещё товар? (да/нет)"
	done          = "📄 Декларация готова!"
	notFound      = "❌ Товар не найден в справочнике. Попробуй ещё раз."
	helpText      = `Бот собирает таблицу для таможенной декларации.

Вручную: /start, затем по шагам укажи товар, вес нетто и брутто, количество мест и цену за кг.
После всех позиций укажи номер и дату инвойса и CMR, и бот пришлёт готовый файл.

Из документов: пришли zip-архив или отдельный файл (xlsx, pdf, jpg, png), проверь найденные позиции и ответь "done".

/cancel сбрасывает текущую сессию.`
)

var prompts = map[domain.Step]string{
	domain.StepProduct:       "Напиши наименование следующего товара:",
	domain.StepNetto:         "Введи вес нетто (в кг):",
	domain.StepBrutto:        "Введи вес брутто (в кг):",
	domain.StepPlaces:        "Введи количество мест:",
	domain.StepPrice:         "Введи цену за кг в долларах (например: 0.85):",
	domain.StepAddMore:       itemAdded,
	domain.StepInvoiceNumber: "Введи номер инвойса:",
	domain.StepInvoiceDate:   "Введи дату инвойса (например: 01.05.2025):",
	domain.StepCMRNumber:     "Введи номер CMR:",
	domain.StepCMRDate:       "Введи дату CMR (например: 02.05.2025):",
}

var retries = map[domain.Step]string{
	domain.StepNetto:         "❌ Введи число больше нуля, например: 350.5",
	domain.StepBrutto:        "❌ Введи число не меньше веса нетто, например: 360",
	domain.StepPlaces:        "❌ Введи целое число, например: 20",
	domain.StepPrice:         "❌ Введи корректную цену, например: 1.25",
	domain.StepAddMore:       "Пожалуйста, ответь 'да' или 'нет'.",
	domain.StepInvoiceNumber: "❌ Номер инвойса не может быть пустым.",
	domain.StepInvoiceDate:   "❌ Введи существующую дату в формате ДД.ММ.ГГГГ, например: 01.05.2025",
	domain.StepCMRNumber:     "❌ Номер CMR не может быть пустым.",
	domain.StepCMRDate:       "❌ Введи существующую дату в формате ДД.ММ.ГГГГ, например: 02.05.2025",
}

func choicePrompt(candidates []string) string {
	var b strings.Builder
	b.WriteString("Нашлось несколько товаров. Напиши точное название или номер:\n")
	for i, name := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, name)
	}
	return strings.TrimRight(b.String(), "\n")
}

func retryPrompt(step domain.Step) string {
	if step == domain.StepProduct {
		return notFound
	}
	return retries[step]
}
