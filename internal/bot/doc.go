// Package bot — "склейка" вокруг discordgo, ростера, admission и листинга.
// Бот:
//   - регистрирует обработчик interaction'ов и обрабатывает их строго по одному
//     (очередь + одна горутина);
//   - обрабатывает slash-команды /panel, /list, /submission;
//   - по кнопкам панели открывает модалки заявки (игрок или клан) и передаёт
//     заявку в admission;
//   - ограничивает частоту заявок на пользователя и, если задан owner,
//     пускает к /panel и /submission только его.
//
// Жизненный цикл:
//   - Создать бота через New(Deps{...}).
//   - Запустить Start(ctx) и остановить Stop().
//
// Пример:
//
//	b := bot.New(bot.Deps{Session: s, Store: store, Admitter: adm, Listing: pub, Log: log})
//	if err := b.Start(ctx); err != nil { log.Error(...); os.Exit(1) }
//	defer b.Stop()
//	<-ctx.Done()
package bot
