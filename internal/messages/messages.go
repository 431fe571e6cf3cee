package messages

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BatmanBruc/bat-bot-sheets/internal/i18n"
	"github.com/BatmanBruc/bat-bot-sheets/types"
)

const ParseModeHTML = "HTML"

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&#39;",
)

func Escape(s string) string {
	return escaper.Replace(strings.TrimSpace(s))
}

func Title(text string) string {
	return fmt.Sprintf("✨ <b>%s</b>", Escape(text))
}

// FormatValue renders a collected value the way it is shown back to the user.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func ErrorDefault(lang i18n.Lang) string {
	return i18n.Pick(lang,
		"🚫 <b>Error</b>\nPlease try again.",
		"🚫 <b>Ошибка</b>\nПопробуйте ещё раз.",
		"🚫 <b>حدث خطأ</b>\nحاول مرة أخرى.")
}

func ErrorUnsupportedMessageType(lang i18n.Lang) string {
	return i18n.Pick(lang,
		"🤖 <b>I can't read that</b>\nPlease send text.",
		"🤖 <b>Я так не умею</b>\nОтправьте текст.",
		"🤖 <b>لا أستطيع قراءة هذا</b>\nأرسل نصاً من فضلك.")
}

func ErrorUnknownCommand(lang i18n.Lang) string {
	return i18n.Pick(lang,
		"❓ <b>Unknown command</b>\nSee /help.",
		"❓ <b>Команда не найдена</b>\nСм. /help.",
		"❓ <b>أمر غير معروف</b>\nراجع /help.")
}

func AccessDenied(lang i18n.Lang, userID int64) string {
	return i18n.Pick(lang,
		fmt.Sprintf("⛔ <b>Access denied</b>\nNo tables are shared with you. Your ID: <code>%d</code>", userID),
		fmt.Sprintf("⛔ <b>Нет доступа</b>\nВам не открыта ни одна таблица. Ваш ID: <code>%d</code>", userID),
		fmt.Sprintf("⛔ <b>غير مصرح</b>\nلا توجد جداول متاحة لك. رقمك: <code>%d</code>", userID))
}

func ChooseTable(lang i18n.Lang) string {
	return i18n.Pick(lang,
		"👋 <b>Hello!</b>\nChoose a table to add a row to:",
		"👋 <b>Привет!</b>\nВыберите таблицу для новой строки:",
		"👋 <b>مرحباً!</b>\nاختر الجدول لإضافة صف:")
}

func ChooseWorksheet(lang i18n.Lang, table string) string {
	return Title(table) + "\n" + i18n.Pick(lang,
		"Choose a section:",
		"Выберите раздел:",
		"اختر القسم:")
}

func TableChosen(lang i18n.Lang, table, worksheet string) string {
	msg := "📋 " + i18n.Pick(lang, "Table", "Таблица", "الجدول") + ": <b>" + Escape(table) + "</b>"
	if worksheet != "" {
		msg += "\n🗂 " + i18n.Pick(lang, "Section", "Раздел", "القسم") + ": <b>" + Escape(worksheet) + "</b>"
	}
	return msg
}

func TableUnavailable(lang i18n.Lang) string {
	return i18n.Pick(lang,
		"⚠️ <b>This table is no longer available</b>\nUse /start to pick another one.",
		"⚠️ <b>Таблица больше недоступна</b>\nНажмите /start, чтобы выбрать другую.",
		"⚠️ <b>هذا الجدول لم يعد متاحاً</b>\nاستخدم /start لاختيار جدول آخر.")
}

func TableChanged(lang i18n.Lang, table string) string {
	return i18n.Pick(lang,
		"🔄 <b>The columns of "+Escape(table)+" were changed</b>\nStarting this row again.",
		"🔄 <b>Колонки таблицы "+Escape(table)+" изменились</b>\nНачинаем строку заново.",
		"🔄 <b>تم تغيير أعمدة "+Escape(table)+"</b>\nسنبدأ هذا السطر من جديد.")
}

func typeHint(lang i18n.Lang, f types.Field) string {
	switch f.Type {
	case types.FieldNumber:
		return i18n.Pick(lang, "number", "число", "رقم")
	case types.FieldDate:
		if f.IncludeTime {
			return i18n.Pick(lang, "date, e.g. 2024-01-31 14:30 or now", "дата, например 2024-01-31 14:30 или now", "تاريخ، مثل 2024-01-31 14:30 أو now")
		}
		return i18n.Pick(lang, "date, e.g. 2024-01-31 or today", "дата, например 31.01.2024 или today", "تاريخ، مثل 2024-01-31 أو today")
	default:
		return i18n.Pick(lang, "text", "текст", "نص")
	}
}

// FieldPrompt asks for one field. position is 1-based.
func FieldPrompt(lang i18n.Lang, f types.Field, position, total int) string {
	msg := fmt.Sprintf("✏️ <b>%s</b> <i>(%s)</i>\n%s",
		Escape(f.Name),
		typeHint(lang, f),
		i18n.Pick(lang, "Enter the value", "Введите значение", "أدخل القيمة"))
	if total > 0 {
		msg = fmt.Sprintf("[%d/%d] ", position, total) + msg
	}
	if !f.Required {
		msg += i18n.Pick(lang,
			"\n<i>Optional, send /skip to leave it empty.</i>",
			"\n<i>Необязательно, /skip чтобы пропустить.</i>",
			"\n<i>اختياري، أرسل /skip لتركه فارغاً.</i>")
	}
	return msg
}

func ErrorInvalidNumber(lang i18n.Lang, f types.Field) string {
	return i18n.Pick(lang,
		fmt.Sprintf("🔢 <b>%s</b> must be a number. Try again:", Escape(f.Name)),
		fmt.Sprintf("🔢 <b>%s</b>: нужно число. Попробуйте ещё раз:", Escape(f.Name)),
		fmt.Sprintf("🔢 <b>%s</b> يجب أن يكون رقماً. حاول مرة أخرى:", Escape(f.Name)))
}

func ErrorInvalidDate(lang i18n.Lang, f types.Field) string {
	return i18n.Pick(lang,
		fmt.Sprintf("📅 <b>%s</b> must be a date like 2024-01-31. Try again:", Escape(f.Name)),
		fmt.Sprintf("📅 <b>%s</b>: нужна дата, например 31.01.2024. Попробуйте ещё раз:", Escape(f.Name)),
		fmt.Sprintf("📅 <b>%s</b> يجب أن يكون تاريخاً مثل 2024-01-31. حاول مرة أخرى:", Escape(f.Name)))
}

func ErrorFieldRequired(lang i18n.Lang, f types.Field) string {
	return i18n.Pick(lang,
		fmt.Sprintf("❗ <b>%s</b> is required and can't be skipped.", Escape(f.Name)),
		fmt.Sprintf("❗ <b>%s</b> обязательно, пропустить нельзя.", Escape(f.Name)),
		fmt.Sprintf("❗ <b>%s</b> حقل إلزامي ولا يمكن تخطيه.", Escape(f.Name)))
}

func NotCollecting(lang i18n.Lang) string {
	return i18n.Pick(lang,
		"ℹ️ Nothing is being filled in right now. Use /start to choose a table.",
		"ℹ️ Сейчас ничего не заполняется. Нажмите /start, чтобы выбрать таблицу.",
		"ℹ️ لا يوجد إدخال جارٍ الآن. استخدم /start لاختيار جدول.")
}

func ChooseFromButtons(lang i18n.Lang) string {
	return i18n.Pick(lang,
		"👆 Please choose one of the buttons above.",
		"👆 Выберите вариант кнопкой выше.",
		"👆 اختر أحد الأزرار أعلاه.")
}

func Cancelled(lang i18n.Lang) string {
	return i18n.Pick(lang,
		"❌ <b>Cancelled</b>\nNothing was saved. Use /start to begin again.",
		"❌ <b>Отменено</b>\nНичего не сохранено. /start чтобы начать заново.",
		"❌ <b>تم الإلغاء</b>\nلم يتم حفظ شيء. استخدم /start للبدء من جديد.")
}

// Saved lists the values in field order.
func Saved(lang i18n.Lang, table string, fields []types.Field, record map[string]interface{}) string {
	var b strings.Builder
	b.WriteString(i18n.Pick(lang,
		"✅ <b>Saved to ",
		"✅ <b>Сохранено в ",
		"✅ <b>تم الحفظ في "))
	b.WriteString(Escape(table))
	b.WriteString("</b>\n")
	for _, f := range fields {
		v := FormatValue(record[f.Name])
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(&b, "\n• %s: %s", Escape(f.Name), Escape(v))
	}
	return b.String()
}

func ErrorAppendFailed(lang i18n.Lang, err error) string {
	msg := i18n.Pick(lang,
		"🚫 <b>Could not save the row</b>\nThe entered data was discarded, use /start to try again.",
		"🚫 <b>Не удалось сохранить строку</b>\nВведённые данные сброшены, /start чтобы попробовать снова.",
		"🚫 <b>تعذر حفظ الصف</b>\nتم تجاهل البيانات المدخلة، استخدم /start للمحاولة مرة أخرى.")
	if err != nil {
		msg += "\n\n" + fmt.Sprintf("<code>%s</code>", Escape(err.Error()))
	}
	return msg
}

func MyID(lang i18n.Lang, userID int64) string {
	return i18n.Pick(lang,
		fmt.Sprintf("🆔 Your Telegram ID: <code>%d</code>", userID),
		fmt.Sprintf("🆔 Ваш Telegram ID: <code>%d</code>", userID),
		fmt.Sprintf("🆔 رقمك في تيليجرام: <code>%d</code>", userID))
}

func Help(lang i18n.Lang) string {
	return i18n.Pick(lang,
		"ℹ️ <b>Commands</b>\n"+
			"/start - choose a table and start a new row\n"+
			"/tables - list the tables you can fill\n"+
			"/skip - leave an optional field empty\n"+
			"/cancel - discard the current row\n"+
			"/recent - your latest submissions\n"+
			"/myid - show your Telegram ID",
		"ℹ️ <b>Команды</b>\n"+
			"/start - выбрать таблицу и начать новую строку\n"+
			"/tables - список доступных таблиц\n"+
			"/skip - пропустить необязательное поле\n"+
			"/cancel - отменить текущую строку\n"+
			"/recent - последние отправки\n"+
			"/myid - показать ваш Telegram ID",
		"ℹ️ <b>الأوامر</b>\n"+
			"/start - اختر جدولاً وابدأ صفاً جديداً\n"+
			"/tables - الجداول المتاحة لك\n"+
			"/skip - ترك الحقل الاختياري فارغاً\n"+
			"/cancel - إلغاء الصف الحالي\n"+
			"/recent - آخر الإدخالات\n"+
			"/myid - عرض رقمك في تيليجرام")
}

func TablesList(lang i18n.Lang, tables []*types.Table) string {
	var b strings.Builder
	b.WriteString(i18n.Pick(lang, "📚 <b>Your tables</b>", "📚 <b>Ваши таблицы</b>", "📚 <b>جداولك</b>"))
	for _, t := range tables {
		fmt.Fprintf(&b, "\n• %s", Escape(t.Name))
		if len(t.Worksheets) > 1 {
			fmt.Fprintf(&b, " <i>(%s)</i>", Escape(strings.Join(t.Worksheets, ", ")))
		}
	}
	return b.String()
}

func RecentSubmissions(lang i18n.Lang, subs []types.Submission) string {
	if len(subs) == 0 {
		return i18n.Pick(lang,
			"🗒 No submissions yet.",
			"🗒 Отправок пока нет.",
			"🗒 لا توجد إدخالات بعد.")
	}
	var b strings.Builder
	b.WriteString(i18n.Pick(lang, "🗒 <b>Recent submissions</b>", "🗒 <b>Последние отправки</b>", "🗒 <b>آخر الإدخالات</b>"))
	for _, s := range subs {
		mark := "✅"
		if s.Status != types.SubmissionAppended {
			mark = "🚫"
		}
		fmt.Fprintf(&b, "\n%s %s <b>%s</b>", mark, s.CreatedAt.Format("2006-01-02 15:04"), Escape(s.TableName))
		if s.Worksheet != "" {
			fmt.Fprintf(&b, " / %s", Escape(s.Worksheet))
		}
	}
	return b.String()
}

func JournalUnavailable(lang i18n.Lang) string {
	return i18n.Pick(lang,
		"ℹ️ Submission history is not enabled.",
		"ℹ️ История отправок не включена.",
		"ℹ️ سجل الإدخالات غير مفعل.")
}

func ButtonSkip(lang i18n.Lang) string {
	return i18n.Pick(lang, "⏭ Skip", "⏭ Пропустить", "⏭ تخطي")
}

func ButtonCancel(lang i18n.Lang) string {
	return i18n.Pick(lang, "✖️ Cancel", "✖️ Отмена", "✖️ إلغاء")
}
