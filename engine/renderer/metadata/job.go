package metadata

import "context"

/** Definition for the body of a job. The returned value is handed to OnComplete. */
type JobStart func(ctx context.Context, params interface{}) (interface{}, error)

/** Definition for completion of a job. */
type JobOnComplete func(result interface{})

/** Definition for failure of a job. */
type JobOnFailure func(params interface{}, err error)

/** @brief Describes a type of job */
type JobType int

const (
	/**
	 * @brief A general job that does not have any specific thread requirements.
	 */
	JOB_TYPE_GENERAL JobType = 0x02
	/**
	 * @brief A resource loading job, such as decoding an image.
	 */
	JOB_TYPE_RESOURCE_LOAD JobType = 0x04
)

/**
 * @brief Determines which job queue a job uses. The high-priority queue is always
 * drained before the normal-priority one, which is drained before the low-priority one.
 */
type JobPriority int

const (
	/** @brief The lowest-priority job, used for things that can wait. */
	JOB_PRIORITY_LOW JobPriority = iota
	/** @brief A normal-priority job, such as loading assets. */
	JOB_PRIORITY_NORMAL
	/** @brief The highest-priority job. Should be used sparingly. */
	JOB_PRIORITY_HIGH
)

/**
 * @brief Describes a job to be run.
 */
type JobTask struct {
	JobType  JobType
	Priority JobPriority
	/** @brief Data passed to OnStart. */
	InputParams interface{}
	/** @brief Invoked on a worker when the job starts. Required. */
	OnStart JobStart
	/** @brief Invoked on the worker when OnStart succeeds. Optional. */
	OnComplete JobOnComplete
	/** @brief Invoked on the worker when OnStart fails. Optional. */
	OnFailure JobOnFailure
	/** @brief Invoked after OnComplete/OnFailure regardless of outcome. Optional. */
	OnCompletionCallback func()
}
