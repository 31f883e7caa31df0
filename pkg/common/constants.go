package common

const (
	RedisStreamSchedulerTaskExecution = "schedule.task.execution"

	RedisStreamGroup    = "executor-group"
	RedisStreamConsumer = "executor-consumer"

	RedisKeyPipelineLock = "indicator_pipeline:lock"
)
