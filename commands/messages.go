package commands

// User-facing chat texts.
const (
	msgNoAPIKey     = "请先在配置文件中设置 Steam API Key。"
	msgGroupOnly    = "请在群聊中使用该指令。"
	msgBindOK       = "绑定成功！已关联 Steam ID: %s"
	msgBindSynced   = "已将现有绑定同步至当前群聊。"
	msgBindInvalid  = "绑定失败：请输入正确的 17 位 Steam ID 64 (例如 76561198000000000)。"
	msgBindMissing  = "你还没有绑定 Steam ID，请使用 /绑定steam <SteamID64>。"
	msgProfileUnset = "未找到绑定的 Steam ID。请先绑定 (/绑定steam <id>) 或指定 ID。"
	msgUserNotFound = "未找到该 Steam 用户，请检查 ID 是否正确，或检查网络/代理设置。"

	msgAchievementUsage   = "请输入游戏名称，例如：/steam成就 黑神话"
	msgAchievementUnbound = "请先绑定 Steam ID。"
	msgAchievementSuggest = "未找到精确匹配的游戏，你是不是想找：\n"
	msgAchievementRetry   = "请尝试使用更完整的名称。"
	msgAchievementNoGame  = "在你拥有的游戏中未找到包含“%s”的游戏。"
	msgAchievementNone    = "《%s》似乎没有可查询的 Steam 成就。"

	msgCompareUnbound  = "你还没有绑定 Steam ID 哦。"
	msgCompareNoTarget = "目标用户未绑定 Steam ID，或未指定对比对象。"
	msgCompareSelf     = "不能和自己对比哦。"
	msgCompareNoData   = "无法获取双方的游戏库，请检查 Steam API Key 或网络代理。"
	msgCompareNoCommon = "双方似乎没有共同拥有的游戏。"

	msgRecommendNoGroup   = "本群暂无绑定信息，无法生成推荐。"
	msgRecommendNoTarget  = "未找到目标用户的 Steam 绑定。"
	msgRecommendNoLibrary = "无法获取目标用户的游戏库。"
	msgRecommendNoOthers  = "群内没有其他已绑定的用户，暂无法推荐。"
	msgRecommendNothing   = "未找到可推荐的游戏，可能你已经拥有群友的热门作品。"

	msgNetworkNoGroup = "本群暂无绑定信息。"
	msgNetworkTooFew  = "至少需要两位已绑定用户才能分析联动。"

	msgRankNoGroup  = "本群尚无用户绑定 Steam ID。请先使用 /绑定steam <SteamID64> 或在本群输入 /绑定steam 同步已有绑定。"
	msgRankProgress = "正在统计%s，请稍候..."
	msgRankNoData   = "无法获取排行数据。"
	titleRankCount  = "群内 Steam 游戏数排行"
	titleRankTime   = "群内 Steam 肝帝排行"
)
