package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.Russian

	message.SetString(lang, keyMonth1, "января")
	message.SetString(lang, keyMonth2, "февраля")
	message.SetString(lang, keyMonth3, "марта")
	message.SetString(lang, keyMonth4, "апреля")
	message.SetString(lang, keyMonth5, "мая")
	message.SetString(lang, keyMonth6, "июня")
	message.SetString(lang, keyMonth7, "июля")
	message.SetString(lang, keyMonth8, "августа")
	message.SetString(lang, keyMonth9, "сентября")
	message.SetString(lang, keyMonth10, "октября")
	message.SetString(lang, keyMonth11, "ноября")
	message.SetString(lang, keyMonth12, "декабря")

	message.SetString(lang, keyDefaultMeal, "встречу")
	message.SetString(lang, keyUnknownUser, "пользователь")
	message.SetString(lang, keyPlace, ` в "%s"`)
	message.SetString(lang, keyWhen, " в %s")

	message.SetString(lang, keyInviteCreated, "У вас новое приглашение%s от %s на %s%s.")
	message.SetString(lang, keyInviteMessage, "\n\nСообщение: %s")
	message.SetString(lang, keyInviteResolved, "Ваше приглашение%s с %s на %s%s было %s")
	message.SetString(lang, keyInviteAccepted, "принято 🥳🥳🥳")
	message.SetString(lang, keyInviteDeclined, "отказано 😭😭😭")
	message.SetString(lang, keyInviteContact, "\n\nСвяжись с %s")

	message.SetString(lang, ButtonAccept, "Принять")
	message.SetString(lang, ButtonDecline, "Отказать")
	message.SetString(lang, ButtonProfile, "Открыть профиль")
	message.SetString(lang, ButtonYes, "Да, встретились")
	message.SetString(lang, ButtonNo, "Нет")

	message.SetString(lang, keySurveyPrompt, "Вы встретились с %s%s%s? Расскажите, как все прошло.")
	message.SetString(lang, keySurveyFollowup, "Отлично! Оставьте реакцию для %s:")
	message.SetString(lang, keySurveyNegative, "Ничего страшного — найдете другого.")

	message.SetString(lang, AckAccepted, "Вы приняли приглашение")
	message.SetString(lang, AckDeclined, "Вы отклонили приглашение")
	message.SetString(lang, AckBadCommand, "Неверная команда")
	message.SetString(lang, AckFailed, "Ошибка при обработке")
	message.SetString(lang, AckNotFound, "Приглашение не найдено")
	message.SetString(lang, AckUnauthorized, "Это приглашение адресовано не вам")
	message.SetString(lang, AckAlreadyResolved, "Приглашение уже обработано")
	message.SetString(lang, AckSurveyNoted, "Спасибо за ответ")
	message.SetString(lang, AckSurveyDuplicate, "Вы уже ответили на этот опрос")
	message.SetString(lang, AckReactionAdded, "Реакция добавлена")
	message.SetString(lang, AckReactionRemoved, "Реакция удалена")
	message.SetString(lang, keyStatusLine, "\n\n✅ %s")
}
