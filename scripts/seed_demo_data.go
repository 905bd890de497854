package main

import (
	"fmt"
	"log"
	"time"

	"github.com/deenlog/internal/config"
	"github.com/deenlog/internal/db"
	"github.com/deenlog/internal/service"
)

// 演示数据生成器：建好五番礼拜与几个常见习惯，并回填两周打卡记录。
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	if err := db.EnsureUser("admin", "admin123"); err != nil {
		log.Fatal("创建管理员失败:", err)
	}

	habits := service.NewHabitService(db.DB)
	logs := service.NewHabitLogService(db.DB)

	fmt.Println("开始生成演示数据...")

	prayerNames := []string{"晨礼", "晌礼", "晡礼", "昏礼", "宵礼"}
	prayerIDs := make([]uint, 0, len(prayerNames))
	for _, name := range prayerNames {
		habit, err := habits.Create(service.HabitInput{
			Name:            name,
			Kind:            string(db.HabitKindGraded),
			ScoringEligible: true,
			TypeTag:         db.TypeTagPrayer,
		})
		if err != nil {
			log.Fatal("创建礼拜习惯失败:", err)
		}
		prayerIDs = append(prayerIDs, habit.ID)
	}

	quran, err := habits.Create(service.HabitInput{
		Name:            "读古兰",
		Description:     "每天至少五页",
		Kind:            string(db.HabitKindCounter),
		DailyTarget:     5,
		ScoringEligible: true,
	})
	if err != nil {
		log.Fatal("创建读经习惯失败:", err)
	}

	adhkar, err := habits.Create(service.HabitInput{
		Name:            "早晚记念词",
		Kind:            string(db.HabitKindCounter),
		DailyTarget:     2,
		ScoringEligible: true,
	})
	if err != nil {
		log.Fatal("创建记念词习惯失败:", err)
	}

	fasting, err := habits.Create(service.HabitInput{
		Name:            "周一周四斋戒",
		Kind:            string(db.HabitKindBinary),
		ScoringEligible: true,
		Schedule:        "weekly:mon,thu",
	})
	if err != nil {
		log.Fatal("创建斋戒习惯失败:", err)
	}

	today := time.Now()
	for offset := 14; offset >= 1; offset-- {
		day := today.AddDate(0, 0, -offset)

		for i, id := range prayerIDs {
			quality := service.QualityTakbirah
			if (offset+i)%5 == 0 {
				quality = service.QualityJamaa
			}
			if _, err := logs.Upsert(service.HabitLogInput{
				HabitID: id,
				LogDate: day,
				Value:   quality,
				Status:  db.LogStatusDone,
				Source:  "seed",
			}); err != nil {
				log.Fatal("写入礼拜记录失败:", err)
			}
		}

		pages := 5
		status := db.LogStatusDone
		reason := ""
		if offset%6 == 0 {
			pages = 2
			status = db.LogStatusFail
			reason = "加班"
		}
		if _, err := logs.Upsert(service.HabitLogInput{
			HabitID: quran.ID,
			LogDate: day,
			Value:   pages,
			Status:  status,
			Reason:  reason,
			Source:  "seed",
		}); err != nil {
			log.Fatal("写入读经记录失败:", err)
		}

		// 复合编码：早晚各记一段
		if _, err := logs.UpsertPart(adhkar.ID, day, "am", service.PartDone); err != nil {
			log.Fatal("写入记念词记录失败:", err)
		}
		pm := service.PartDone
		if offset%7 == 0 {
			pm = service.PartFail
		}
		if _, err := logs.UpsertPart(adhkar.ID, day, "pm", pm); err != nil {
			log.Fatal("写入记念词记录失败:", err)
		}

		if wd := day.Weekday(); wd == time.Monday || wd == time.Thursday {
			if _, err := logs.Upsert(service.HabitLogInput{
				HabitID: fasting.ID,
				LogDate: day,
				Status:  db.LogStatusDone,
				Source:  "seed",
			}); err != nil {
				log.Fatal("写入斋戒记录失败:", err)
			}
		}
	}

	fmt.Println("演示数据生成完成！")
	fmt.Println("用户: admin (密码: admin123)")
	fmt.Printf("习惯: 五番礼拜 + 读古兰 + 早晚记念词 + 斋戒，共 %d 个\n", len(prayerIDs)+3)
}
